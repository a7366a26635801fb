// Package sweep turns experiment parameters into a sweep plan: the ordered
// bucket sizes of an arithmetic or geometric progression and, for each bucket,
// the number of independent walks to request from the oracle.
//
// Usage:
//
//	for _, b := range sweep.Plan(params) {
//	    fmt.Println(b.Index, b.TotalSteps, b.NumWalks)
//	}
package sweep
