// Package events defines the planning related events emitted on the event bus.
//
// Available event types:
//   - BatchEvent: a fulfillment run started
//   - StrategyEvent: exact solve attempts and fallback information
//   - ScheduleCommittedEvent: a production schedule was persisted
//   - AssignmentCommittedEvent: a staff assignment was persisted
//   - StaffFailureEvent: staffing failed for one schedule
//   - PlanCompletedEvent: a fulfillment run finished
package events
