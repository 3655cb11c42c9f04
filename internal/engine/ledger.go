package engine

import (
	"order-insights/internal/models"
)

// Synthetic bucket for orders that match no known ad
const (
	UnattributedID   = "unattributed"
	UnattributedName = "Unattributed"
)

// Evaluated is an order paired with its reconciled status and attribution
type Evaluated struct {
	Order       *models.Order
	Status      models.CanonicalStatus
	Attribution models.Attribution
}

// Evaluate runs the reconciler and the resolver for one order
func Evaluate(o *models.Order) Evaluated {
	return Evaluated{
		Order:       o,
		Status:      Reconcile(o),
		Attribution: Resolve(o),
	}
}

// BucketTree is the two-level rollup: adset buckets holding term buckets
type BucketTree struct {
	adsets       []*Bucket
	adsetIndex   map[string]*Bucket
	adParent     map[string]*Bucket
	unattributed *Bucket
}

// BuildBucketTree seeds buckets from spend records and routes every order
// into exactly one adset bucket and one term bucket within it. Orders count
// in both levels; adset spend is re-derived from its terms afterwards.
func BuildBucketTree(spend []models.SpendRecord, orders []Evaluated) *BucketTree {
	t := &BucketTree{
		adsetIndex: make(map[string]*Bucket),
		adParent:   make(map[string]*Bucket),
	}
	t.unattributed = newBucket(UnattributedID, UnattributedName)
	t.adsets = append(t.adsets, t.unattributed)

	for i := range spend {
		t.addSpend(&spend[i])
	}

	for _, e := range orders {
		adset, term := t.route(e.Attribution)
		Accumulate(adset, e.Order, e.Status)
		Accumulate(term, e.Order, e.Status)
	}

	for _, b := range t.adsets {
		b.rollUpSpend()
	}
	return t
}

// Adsets returns every adset bucket in creation order, unattributed first
func (t *BucketTree) Adsets() []*Bucket {
	return t.adsets
}

// Adset looks up an adset bucket by id. UnattributedID always names the
// synthetic bucket; spend is never merged into it.
func (t *BucketTree) Adset(id string) (*Bucket, bool) {
	if id == UnattributedID {
		return t.unattributed, true
	}
	b, ok := t.adsetIndex[id]
	return b, ok
}

// Output returns the pruned and sorted buckets for reporting
func (t *BucketTree) Output() []*Bucket {
	return pruneAndSort(t.adsets)
}

func (t *BucketTree) adset(id, name string) *Bucket {
	if b, ok := t.adsetIndex[id]; ok {
		return b
	}
	b := newBucket(id, name)
	t.adsetIndex[id] = b
	t.adsets = append(t.adsets, b)
	return b
}

func (t *BucketTree) addSpend(r *models.SpendRecord) {
	parent, known := t.adParent[r.AdID]
	if !known {
		parent = t.adset(r.AdsetID, r.AdsetName)
		t.adParent[r.AdID] = parent
	}
	term := parent.term(r.AdID, r.AdName)
	term.Spend = term.Spend.Add(r.Spend)
}

// route picks the buckets for one attribution. A term equal to a known ad id
// routes to that ad whether it came from utm_content or utm_term.
func (t *BucketTree) route(a models.Attribution) (*Bucket, *Bucket) {
	if parent, ok := t.adParent[a.Term]; ok {
		return parent, parent.term(a.Term, a.Term)
	}
	return t.unattributed, t.unattributed.term(a.Source, a.Term)
}
