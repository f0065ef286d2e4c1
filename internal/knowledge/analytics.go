package knowledge

type Overview struct {
	TotalNodes     int     `json:"totalNodes" yaml:"totalNodes"`
	CompletedNodes int     `json:"completedNodes" yaml:"completedNodes"`
	NeedsAttention int     `json:"needsAttention" yaml:"needsAttention"`
	CompletionRate float64 `json:"completionRate" yaml:"completionRate"`
}

type TimeAnalysis struct {
	TotalTimeMinutes int     `json:"totalTimeMinutes" yaml:"totalTimeMinutes"`
	TotalTimeHours   float64 `json:"totalTimeHours" yaml:"totalTimeHours"`
	AvgTimePerNode   float64 `json:"avgTimePerNode" yaml:"avgTimePerNode"`
}

type SessionStats struct {
	TotalSessions      int     `json:"totalSessions" yaml:"totalSessions"`
	AvgDurationMinutes float64 `json:"avgDurationMinutes" yaml:"avgDurationMinutes"`
	AvgScore           float64 `json:"avgScore" yaml:"avgScore"`
}

// Analytics summarises learning activity for one document.
type Analytics struct {
	Overview       Overview             `json:"overview" yaml:"overview"`
	TimeAnalysis   TimeAnalysis         `json:"timeAnalysis" yaml:"timeAnalysis"`
	Sessions       SessionStats         `json:"sessions" yaml:"sessions"`
	ProgressByType map[NodeType]float64 `json:"progressByType" yaml:"progressByType"`
}

// Analyze computes analytics. Averages are rounded to one decimal and are
// zero over empty inputs; AvgScore only counts scored sessions.
func Analyze(nodes []Node, sessions []Session) Analytics {
	a := Analytics{ProgressByType: map[NodeType]float64{}}

	progressSum := map[NodeType]int{}
	typeCount := map[NodeType]int{}
	for _, n := range nodes {
		switch n.Status {
		case StatusWellLearned:
			a.Overview.CompletedNodes++
		case StatusNeedsReinforcement, StatusNotLearned:
			a.Overview.NeedsAttention++
		}
		a.TimeAnalysis.TotalTimeMinutes += n.TimeSpentMinutes
		progressSum[n.Type] += n.Progress
		typeCount[n.Type]++
	}
	a.Overview.TotalNodes = len(nodes)
	if len(nodes) > 0 {
		a.Overview.CompletionRate = round1(float64(a.Overview.CompletedNodes) / float64(len(nodes)) * 100)
		a.TimeAnalysis.AvgTimePerNode = round1(float64(a.TimeAnalysis.TotalTimeMinutes) / float64(len(nodes)))
	}
	a.TimeAnalysis.TotalTimeHours = round1(float64(a.TimeAnalysis.TotalTimeMinutes) / 60)
	for t, c := range typeCount {
		a.ProgressByType[t] = round1(float64(progressSum[t]) / float64(c))
	}

	var duration int
	var scoreSum float64
	var scored int
	for _, s := range sessions {
		duration += s.DurationMinutes
		if s.Score != nil {
			scoreSum += *s.Score
			scored++
		}
	}
	a.Sessions.TotalSessions = len(sessions)
	if len(sessions) > 0 {
		a.Sessions.AvgDurationMinutes = round1(float64(duration) / float64(len(sessions)))
	}
	if scored > 0 {
		a.Sessions.AvgScore = round1(scoreSum / float64(scored))
	}
	return a
}
