package tezt

// Observer receives notifications as the executor walks the tree. It exists purely so
// that reporters can show progress; nothing the executor does depends on it.
//
// CaseStarted and CaseFinished are also called for cases that are skipped or not run.
type Observer interface {
	GroupStarted(group *Group, skipped bool, depth int)
	GroupFinished(result *GroupResult)
	CaseStarted(c *Case, depth int)
	CaseFinished(result *CaseResult, c *Case)
}

type nullObserver struct{}

func (nullObserver) GroupStarted(*Group, bool, int)  {}
func (nullObserver) GroupFinished(*GroupResult)      {}
func (nullObserver) CaseStarted(*Case, int)          {}
func (nullObserver) CaseFinished(*CaseResult, *Case) {}

// NullObserver returns an Observer that does nothing.
func NullObserver() Observer { return nullObserver{} }

// MultiObserver forwards every notification to each of its observers in order.
type MultiObserver struct {
	Observers []Observer
}

func (m MultiObserver) GroupStarted(group *Group, skipped bool, depth int) {
	for _, o := range m.Observers {
		o.GroupStarted(group, skipped, depth)
	}
}

func (m MultiObserver) GroupFinished(result *GroupResult) {
	for _, o := range m.Observers {
		o.GroupFinished(result)
	}
}

func (m MultiObserver) CaseStarted(c *Case, depth int) {
	for _, o := range m.Observers {
		o.CaseStarted(c, depth)
	}
}

func (m MultiObserver) CaseFinished(result *CaseResult, c *Case) {
	for _, o := range m.Observers {
		o.CaseFinished(result, c)
	}
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are no-ops.
type ObserverFuncs struct {
	OnGroupStarted  func(group *Group, skipped bool, depth int)
	OnGroupFinished func(result *GroupResult)
	OnCaseStarted   func(c *Case, depth int)
	OnCaseFinished  func(result *CaseResult, c *Case)
}

func (f ObserverFuncs) GroupStarted(group *Group, skipped bool, depth int) {
	if f.OnGroupStarted != nil {
		f.OnGroupStarted(group, skipped, depth)
	}
}

func (f ObserverFuncs) GroupFinished(result *GroupResult) {
	if f.OnGroupFinished != nil {
		f.OnGroupFinished(result)
	}
}

func (f ObserverFuncs) CaseStarted(c *Case, depth int) {
	if f.OnCaseStarted != nil {
		f.OnCaseStarted(c, depth)
	}
}

func (f ObserverFuncs) CaseFinished(result *CaseResult, c *Case) {
	if f.OnCaseFinished != nil {
		f.OnCaseFinished(result, c)
	}
}
