// Package quota defines usage limits and resolves the effective limits of a group.
//
// A nil field means "no limit". Combining two limit sets adds finite values and
// lets any unlimited side void the cap.
package quota

import "github.com/KOMKZ/go-yogan-quota/model"

// UsageLimits one optional quota per category; never mutated after construction
type UsageLimits struct {
	MaxUsers                         *int64 `json:"max_users" mapstructure:"max_users"`
	MaxAPIKeys                       *int64 `json:"max_api_keys" mapstructure:"max_api_keys"`
	MaxAPICreditsPerMonth            *int64 `json:"max_api_credits_per_month" mapstructure:"max_api_credits_per_month"`
	MaxTasks                         *int64 `json:"max_tasks" mapstructure:"max_tasks"`
	MaxTaskExecutionConcurrency      *int64 `json:"max_task_execution_concurrency" mapstructure:"max_task_execution_concurrency"`
	MaxTaskExecutionHistoryItems     *int64 `json:"max_task_execution_history_items" mapstructure:"max_task_execution_history_items"`
	MaxWorkflows                     *int64 `json:"max_workflows" mapstructure:"max_workflows"`
	MaxWorkflowExecutionConcurrency  *int64 `json:"max_workflow_execution_concurrency" mapstructure:"max_workflow_execution_concurrency"`
	MaxWorkflowTaskInstances         *int64 `json:"max_workflow_task_instances" mapstructure:"max_workflow_task_instances"`
	MaxWorkflowExecutionHistoryItems *int64 `json:"max_workflow_execution_history_items" mapstructure:"max_workflow_execution_history_items"`
	MaxAlertsPerDay                  *int64 `json:"max_alerts_per_day" mapstructure:"max_alerts_per_day"`
	MaxEvents                        *int64 `json:"max_events" mapstructure:"max_events"`
	MaxNotifications                 *int64 `json:"max_notifications" mapstructure:"max_notifications"`
}

// Int64 returns a pointer to v
func Int64(v int64) *int64 {
	return &v
}

// Unlimited every field absent
func Unlimited() UsageLimits {
	return UsageLimits{}
}

// DefaultLimits free-tier baseline applied to every group
func DefaultLimits() UsageLimits {
	return UsageLimits{
		MaxUsers:                         Int64(1),
		MaxAPIKeys:                       Int64(20),
		MaxAPICreditsPerMonth:            Int64(10000),
		MaxTasks:                         Int64(20),
		MaxTaskExecutionConcurrency:      Int64(10),
		MaxTaskExecutionHistoryItems:     Int64(1000),
		MaxWorkflows:                     Int64(5),
		MaxWorkflowExecutionConcurrency:  Int64(5),
		MaxWorkflowTaskInstances:         Int64(20),
		MaxWorkflowExecutionHistoryItems: Int64(1000),
		MaxAlertsPerDay:                  Int64(100),
		MaxEvents:                        Int64(10000),
		MaxNotifications:                 Int64(10000),
	}
}

// FromPlan reads the quota columns of a subscription plan
func FromPlan(plan model.SubscriptionPlan) UsageLimits {
	return UsageLimits{
		MaxUsers:                         clone(plan.MaxUsers),
		MaxAPIKeys:                       clone(plan.MaxAPIKeys),
		MaxAPICreditsPerMonth:            clone(plan.MaxAPICreditsPerMonth),
		MaxTasks:                         clone(plan.MaxTasks),
		MaxTaskExecutionConcurrency:      clone(plan.MaxTaskExecutionConcurrency),
		MaxTaskExecutionHistoryItems:     clone(plan.MaxTaskExecutionHistoryItems),
		MaxWorkflows:                     clone(plan.MaxWorkflows),
		MaxWorkflowExecutionConcurrency:  clone(plan.MaxWorkflowExecutionConcurrency),
		MaxWorkflowTaskInstances:         clone(plan.MaxWorkflowTaskInstances),
		MaxWorkflowExecutionHistoryItems: clone(plan.MaxWorkflowExecutionHistoryItems),
		MaxAlertsPerDay:                  clone(plan.MaxAlertsPerDay),
		MaxEvents:                        clone(plan.MaxEvents),
		MaxNotifications:                 clone(plan.MaxNotifications),
	}
}

// Combine stacks two limit sets field by field: absent on either side yields
// absent, otherwise the values are summed. Commutative and associative.
func (l UsageLimits) Combine(o UsageLimits) UsageLimits {
	return UsageLimits{
		MaxUsers:                         add(l.MaxUsers, o.MaxUsers),
		MaxAPIKeys:                       add(l.MaxAPIKeys, o.MaxAPIKeys),
		MaxAPICreditsPerMonth:            add(l.MaxAPICreditsPerMonth, o.MaxAPICreditsPerMonth),
		MaxTasks:                         add(l.MaxTasks, o.MaxTasks),
		MaxTaskExecutionConcurrency:      add(l.MaxTaskExecutionConcurrency, o.MaxTaskExecutionConcurrency),
		MaxTaskExecutionHistoryItems:     add(l.MaxTaskExecutionHistoryItems, o.MaxTaskExecutionHistoryItems),
		MaxWorkflows:                     add(l.MaxWorkflows, o.MaxWorkflows),
		MaxWorkflowExecutionConcurrency:  add(l.MaxWorkflowExecutionConcurrency, o.MaxWorkflowExecutionConcurrency),
		MaxWorkflowTaskInstances:         add(l.MaxWorkflowTaskInstances, o.MaxWorkflowTaskInstances),
		MaxWorkflowExecutionHistoryItems: add(l.MaxWorkflowExecutionHistoryItems, o.MaxWorkflowExecutionHistoryItems),
		MaxAlertsPerDay:                  add(l.MaxAlertsPerDay, o.MaxAlertsPerDay),
		MaxEvents:                        add(l.MaxEvents, o.MaxEvents),
		MaxNotifications:                 add(l.MaxNotifications, o.MaxNotifications),
	}
}

// Combine folds any number of limit sets; zero arguments yields Unlimited
func Combine(limits ...UsageLimits) UsageLimits {
	if len(limits) == 0 {
		return Unlimited()
	}
	total := limits[0].copied()
	for _, l := range limits[1:] {
		total = total.Combine(l)
	}
	return total
}

// Equal compares field values, not pointers
func (l UsageLimits) Equal(o UsageLimits) bool {
	return eq(l.MaxUsers, o.MaxUsers) &&
		eq(l.MaxAPIKeys, o.MaxAPIKeys) &&
		eq(l.MaxAPICreditsPerMonth, o.MaxAPICreditsPerMonth) &&
		eq(l.MaxTasks, o.MaxTasks) &&
		eq(l.MaxTaskExecutionConcurrency, o.MaxTaskExecutionConcurrency) &&
		eq(l.MaxTaskExecutionHistoryItems, o.MaxTaskExecutionHistoryItems) &&
		eq(l.MaxWorkflows, o.MaxWorkflows) &&
		eq(l.MaxWorkflowExecutionConcurrency, o.MaxWorkflowExecutionConcurrency) &&
		eq(l.MaxWorkflowTaskInstances, o.MaxWorkflowTaskInstances) &&
		eq(l.MaxWorkflowExecutionHistoryItems, o.MaxWorkflowExecutionHistoryItems) &&
		eq(l.MaxAlertsPerDay, o.MaxAlertsPerDay) &&
		eq(l.MaxEvents, o.MaxEvents) &&
		eq(l.MaxNotifications, o.MaxNotifications)
}

// Normalize turns negative values into absent. Configuration files use -1
// for "unlimited".
func (l UsageLimits) Normalize() UsageLimits {
	return UsageLimits{
		MaxUsers:                         nonNegative(l.MaxUsers),
		MaxAPIKeys:                       nonNegative(l.MaxAPIKeys),
		MaxAPICreditsPerMonth:            nonNegative(l.MaxAPICreditsPerMonth),
		MaxTasks:                         nonNegative(l.MaxTasks),
		MaxTaskExecutionConcurrency:      nonNegative(l.MaxTaskExecutionConcurrency),
		MaxTaskExecutionHistoryItems:     nonNegative(l.MaxTaskExecutionHistoryItems),
		MaxWorkflows:                     nonNegative(l.MaxWorkflows),
		MaxWorkflowExecutionConcurrency:  nonNegative(l.MaxWorkflowExecutionConcurrency),
		MaxWorkflowTaskInstances:         nonNegative(l.MaxWorkflowTaskInstances),
		MaxWorkflowExecutionHistoryItems: nonNegative(l.MaxWorkflowExecutionHistoryItems),
		MaxAlertsPerDay:                  nonNegative(l.MaxAlertsPerDay),
		MaxEvents:                        nonNegative(l.MaxEvents),
		MaxNotifications:                 nonNegative(l.MaxNotifications),
	}
}

func (l UsageLimits) copied() UsageLimits {
	return l.Combine(zero)
}

// zero is the identity for finite fields; used only by copied
var zero = UsageLimits{
	MaxUsers:                         Int64(0),
	MaxAPIKeys:                       Int64(0),
	MaxAPICreditsPerMonth:            Int64(0),
	MaxTasks:                         Int64(0),
	MaxTaskExecutionConcurrency:      Int64(0),
	MaxTaskExecutionHistoryItems:     Int64(0),
	MaxWorkflows:                     Int64(0),
	MaxWorkflowExecutionConcurrency:  Int64(0),
	MaxWorkflowTaskInstances:         Int64(0),
	MaxWorkflowExecutionHistoryItems: Int64(0),
	MaxAlertsPerDay:                  Int64(0),
	MaxEvents:                        Int64(0),
	MaxNotifications:                 Int64(0),
}

func add(a, b *int64) *int64 {
	if a == nil || b == nil {
		return nil
	}
	return Int64(*a + *b)
}

func clone(v *int64) *int64 {
	if v == nil {
		return nil
	}
	return Int64(*v)
}

func eq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func nonNegative(v *int64) *int64 {
	if v == nil || *v < 0 {
		return nil
	}
	return Int64(*v)
}
