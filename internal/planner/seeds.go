package planner

import (
	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/qerrors"
	"github.com/brightlinq/qplan/internal/query"
)

// SizeEstimator answers scan-size estimates for the DP cost model,
// abstracting over the index store (§6: "the planner depends only on
// this shape and on the index's ability to answer scan-size queries").
type SizeEstimator interface {
	EstimateScanSize(variant ScanVariant, pred ids.Id) int64
}

// TermResolver resolves a bound term string to its dictionary Id. The
// seed generator only needs this for the predicate and any bound
// subject/object position.
type TermResolver interface {
	Resolve(term string) (ids.Id, error)
}

// SeedsForNode builds the 4.B candidate seed scans for one triple node.
func SeedsForNode(arena *Arena, nodeID int, t query.TriplePattern, idx SizeEstimator, terms TermResolver) ([]*SubtreePlan, error) {
	sVar, oVar := query.IsVariable(t.Subject), query.IsVariable(t.Object)
	pVar := query.IsVariable(t.Predicate)

	nvars := 0
	if sVar {
		nvars++
	}
	if oVar {
		nvars++
	}
	if pVar {
		nvars++
	}

	if pVar {
		return nil, qerrors.NotYetImpl("predicate-variable triples are not supported (node %d)", nodeID)
	}
	if nvars == 0 {
		return nil, qerrors.NotYetImpl("triple %d has no variable", nodeID)
	}
	if nvars >= 3 {
		return nil, qerrors.NotYetImpl("triple %d has %d variables, at most 2 supported", nodeID, nvars)
	}

	pred, err := terms.Resolve(t.Predicate)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, err, "resolving predicate %q", t.Predicate)
	}

	if nvars == 1 {
		if sVar {
			size := idx.EstimateScanSize(POSBoundO, pred)
			obj, err := terms.Resolve(t.Object)
			if err != nil {
				return nil, qerrors.Wrap(qerrors.Internal, err, "resolving object %q", t.Object)
			}
			root := arena.Add(Scan{Variant: POSBoundO, Pred: pred, BoundTerm: obj, Width: 1, Size: size})
			plan := &SubtreePlan{
				Arena:    arena,
				Root:     root,
				Nodes:    []int{nodeID},
				Filters:  map[int]bool{},
				VarCol:   map[string]int{t.Subject: 0},
				SortedBy: 0,
				CtxVars:  map[string]bool{},
				Width:    1,
				Size:     size,
				Cost:     float64(size),
			}
			return []*SubtreePlan{plan}, nil
		}
		// object is the variable
		size := idx.EstimateScanSize(PSOBoundS, pred)
		subj, err := terms.Resolve(t.Subject)
		if err != nil {
			return nil, qerrors.Wrap(qerrors.Internal, err, "resolving subject %q", t.Subject)
		}
		root := arena.Add(Scan{Variant: PSOBoundS, Pred: pred, BoundTerm: subj, Width: 1, Size: size})
		plan := &SubtreePlan{
			Arena:    arena,
			Root:     root,
			Nodes:    []int{nodeID},
			Filters:  map[int]bool{},
			VarCol:   map[string]int{t.Object: 0},
			SortedBy: 0,
			CtxVars:  map[string]bool{},
			Width:    1,
			Size:     size,
			Cost:     float64(size),
		}
		return []*SubtreePlan{plan}, nil
	}

	// nvars == 2: both subject and object are variables, predicate bound.
	sizeS := idx.EstimateScanSize(PSOFreeS, pred)
	rootS := arena.Add(Scan{Variant: PSOFreeS, Pred: pred, Width: 2, Size: sizeS})
	planS := &SubtreePlan{
		Arena:    arena,
		Root:     rootS,
		Nodes:    []int{nodeID},
		Filters:  map[int]bool{},
		VarCol:   map[string]int{t.Subject: 0, t.Object: 1},
		SortedBy: 0,
		CtxVars:  map[string]bool{},
		Width:    2,
		Size:     sizeS,
		Cost:     float64(sizeS),
	}

	sizeO := idx.EstimateScanSize(POSFreeO, pred)
	rootO := arena.Add(Scan{Variant: POSFreeO, Pred: pred, Width: 2, Size: sizeO})
	planO := &SubtreePlan{
		Arena:    arena,
		Root:     rootO,
		Nodes:    []int{nodeID},
		Filters:  map[int]bool{},
		VarCol:   map[string]int{t.Object: 0, t.Subject: 1},
		SortedBy: 0,
		CtxVars:  map[string]bool{},
		Width:    2,
		Size:     sizeO,
		Cost:     float64(sizeO),
	}

	return []*SubtreePlan{planS, planO}, nil
}
