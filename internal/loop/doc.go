// Package loop implements the goal convergence loop. Each iteration
// asks the model for a script proposal, optionally confirms it with the
// user, executes it with the runner and feeds the outcome back into the
// next proposal:
//
//   - Success requires the model to claim the goal is attained after
//     having seen output from a run that exited cleanly
//   - The first iteration can never succeed: there is no execution
//     record yet for the model to have observed
//   - The final allotted iteration only checks for convergence, it
//     never executes a new script
//
// The Proposer, Runner and confirmation prompt are injected through
// Options so tests can drive the loop without a model or a Python
// toolchain.
package loop
