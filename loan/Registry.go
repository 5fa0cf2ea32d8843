package loan

import "github.com/creditlab/loanmarket/market"

// Registry is an id-keyed book of issued loans. Borrowers and lenders
// hold loan ids and resolve them through the registry that issued
// them, so no loan ever holds a party and no party ever holds a loan.
type Registry struct {
	loans  map[ID]*Loan
	nextID ID
}

// NewRegistry returns an empty loan registry
func NewRegistry() *Registry {
	return &Registry{loans: make(map[ID]*Loan)}
}

// Issue creates a new loan under the given offer terms, registers it,
// and returns it. Issued ids are unique for the registry's lifetime.
func (r *Registry) Issue(lenderID, borrowerID int64, offer market.Offer) *Loan {
	r.nextID++
	l := New(r.nextID, lenderID, borrowerID, offer)
	r.loans[l.ID] = l
	return l
}

// Lookup returns the loan with the given id and whether it exists
func (r *Registry) Lookup(id ID) (*Loan, bool) {
	l, ok := r.loans[id]
	return l, ok
}

// Remove drops the loan with the given id from the registry. Removing
// an unknown id is a no-op.
func (r *Registry) Remove(id ID) {
	delete(r.loans, id)
}

// Len returns the number of loans on the registry's book
func (r *Registry) Len() int {
	return len(r.loans)
}
