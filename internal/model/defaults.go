package model

func (p *Program) ApplyDefaults() {
	if p.Status == "" {
		p.Status = StatusActive
	}
}

func (w *WorkStream) ApplyDefaults() {
	if w.Status == "" {
		w.Status = StatusActive
	}
}

func (w *WorkPlan) ApplyDefaults() {
	if w.Status == "" {
		w.Status = StatusPlanned
	}
}

func (t *Target) ApplyDefaults() {
	if t.Status == "" {
		t.Status = StatusPending
	}
}

func (s *Schedule) ApplyDefaults() {
	if s.Status == "" {
		s.Status = StatusScheduled
	}
}

func (f *FieldTeam) ApplyDefaults() {
	if f.Status == "" {
		f.Status = StatusActive
	}
}

func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = StatusPending
	}
}

// FarmerData 和 Employee 没有状态字段
func (f *FarmerData) ApplyDefaults() {}

func (e *Employee) ApplyDefaults() {}
