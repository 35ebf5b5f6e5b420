package model

// Badge 达到积分阈值时的一次性提示，不做持久化
type Badge struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

var Badges = []Badge{
	{Name: "Intermediate Farmer", Threshold: 50},
	{Name: "Master Farmer", Threshold: 100},
}

const (
	PointsPerView          = 10
	PointsPerCorrectAnswer = 5
)

// Progress 是单个会话的积分聚合
type Progress struct {
	SessionID string          `json:"sessionId"`
	Points    int             `json:"points"`
	Viewed    map[string]bool `json:"viewed"`
	QuizBest  map[string]int  `json:"quizBest"`
	Badges    []string        `json:"badges"`
}

func NewProgress(sessionID string) *Progress {
	return &Progress{
		SessionID: sessionID,
		Viewed:    make(map[string]bool),
		QuizBest:  make(map[string]int),
		Badges:    []string{},
	}
}

// ProgressUpdate 返回给前端，Unlocked 只在跨过阈值那一次出现
// swagger:model ProgressUpdate
type ProgressUpdate struct {
	Points        int      `json:"points"`
	Awarded       int      `json:"awarded"`
	Badges        []string `json:"badges"`
	Unlocked      []string `json:"unlocked,omitempty"`
	NextThreshold int      `json:"nextThreshold,omitempty"`
}
