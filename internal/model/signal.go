package model

// ConditionResult is the outcome of one trend template condition.
type ConditionResult struct {
	Name       string
	Passed     bool
	Commentary string
}

// TemplateCheck is the final output of the strategy engine for one ticker.
type TemplateCheck struct {
	Conditions []ConditionResult
	Passed     bool
}

// Failed returns the names of the conditions that did not hold.
func (c *TemplateCheck) Failed() []string {
	var names []string
	for _, cond := range c.Conditions {
		if !cond.Passed {
			names = append(names, cond.Name)
		}
	}
	return names
}
