package model

// QuizDefinition 从 .json 或 .xlsx 文件加载，只读
type QuizDefinition struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// QuizView 是返回给前端的题目视图，不包含答案
// swagger:model QuizView
type QuizView struct {
	Title     string             `json:"title"`
	Questions []QuizQuestionView `json:"questions"`
}

type QuizQuestionView struct {
	Index   int      `json:"index"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

func (d *QuizDefinition) View() *QuizView {
	view := &QuizView{Title: d.Title, Questions: make([]QuizQuestionView, 0, len(d.Questions))}
	for i, q := range d.Questions {
		view.Questions = append(view.Questions, QuizQuestionView{Index: i, Text: q.Text, Options: q.Options})
	}
	return view
}

// QuizAttempt 题号 -> 用户选择，未作答的题不出现
type QuizAttempt map[int]string

// QuizScore 单次评分结果
// swagger:model QuizScore
type QuizScore struct {
	Score    int     `json:"score"`
	Total    int     `json:"total"`
	Answered int     `json:"answered"`
	Ratio    float64 `json:"ratio"`
	Empty    bool    `json:"empty,omitempty"`
}
