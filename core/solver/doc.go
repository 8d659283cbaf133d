// Package solver contains the exact optimisation engines behind production
// scheduling and staff assignment.
//
// Both models are solved by depth-first branch and bound under a wall-clock
// budget. A search that completes proves optimality (or infeasibility); a
// search cut short by the budget reports the best incumbent as FEASIBLE, or
// UNKNOWN when none was found.
//
// The scheduling search builds one task sequence per line by inserting tasks
// one at a time at every position of every line. Each sequence is laid out
// left-justified around blocked intervals, which loses no optimal makespan.
// The assignment search is bounded at the root by the LP relaxation of the
// model, solved with gonum's simplex.
package solver
