package assignment

import (
	"errors"
	"sync"

	"github.com/AvnerAdda/shekelsync-sub000/internal/categories"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/AvnerAdda/shekelsync-sub000/internal/rules"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Workflow owns the assignment drafts for all transactions under review.
//
// Drafts are keyed by the composite transaction key. Operations for
// different transactions may run concurrently, operations on the same
// transaction are serialized by the in-flight guard: a second commit for a
// key fails with ErrCommitInFlight while the first one is pending.
type Workflow struct {
	db *gorm.DB

	mu       sync.Mutex
	drafts   map[string]*Draft
	inFlight map[string]bool

	// ApplyOptions are passed through to rule application triggered by
	// AutoAssignSimilar.
	ApplyOptions rules.ApplyOptions
}

// NewWorkflow returns a workflow with an empty review set.
func NewWorkflow(db *gorm.DB) *Workflow {
	return &Workflow{
		db:       db,
		drafts:   make(map[string]*Draft),
		inFlight: make(map[string]bool),
	}
}

// Review puts the transaction into the review set and returns its draft.
// A transaction already under review keeps its existing draft.
func (w *Workflow) Review(key string) (*Draft, error) {
	transaction, err := w.transaction(key)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	draft, ok := w.drafts[key]
	if !ok {
		draft = NewDraft(transaction.Amount)
		w.drafts[key] = draft
	}

	return draft, nil
}

// Draft returns the draft for the key.
func (w *Workflow) Draft(key string) (*Draft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	draft, ok := w.drafts[key]
	if !ok {
		return nil, ErrNotUnderReview
	}

	return draft, nil
}

// SelectAt updates the category path of the draft for the key.
func (w *Workflow) SelectAt(key string, depth int, categoryID uint64) (*Draft, error) {
	_, index, err := categories.LoadForest(w.db)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	draft, ok := w.drafts[key]
	if !ok {
		return nil, ErrNotUnderReview
	}

	err = draft.SelectAt(index, depth, categoryID)
	if err != nil {
		return nil, err
	}

	return draft, nil
}

// SetKind switches the draft for the key to another kind.
func (w *Workflow) SetKind(key string, kind models.CategoryKind) (*Draft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	draft, ok := w.drafts[key]
	if !ok {
		return nil, ErrNotUnderReview
	}

	err := draft.SetKind(kind)
	if err != nil {
		return nil, err
	}

	return draft, nil
}

// Discard drops the draft for the key, for example when the transaction
// leaves the review set without being categorized.
func (w *Workflow) Discard(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.drafts, key)
}

// Commit writes the draft's categorization to the transaction.
//
// The assignment is manual: auto_categorized is false and the confidence is
// 1.0, a manual decision is maximally confident by definition. On success
// the transaction leaves the review set.
func (w *Workflow) Commit(key string) (models.Transaction, error) {
	release, err := w.acquire(key)
	if err != nil {
		return models.Transaction{}, err
	}
	defer release()

	draft, err := w.Draft(key)
	if err != nil {
		return models.Transaction{}, err
	}

	leaf, err := w.resolveLeaf(draft)
	if err != nil {
		return models.Transaction{}, err
	}

	transaction, err := w.transaction(key)
	if err != nil {
		return models.Transaction{}, err
	}

	err = w.categorize(transaction, leaf, false)
	if err != nil {
		return models.Transaction{}, err
	}

	w.Discard(key)

	return w.transaction(key)
}

// AutoAssignResult reports what AutoAssignSimilar did.
type AutoAssignResult struct {
	RuleCreated bool                `json:"ruleCreated"` // False when an equivalent rule already existed
	Rule        *models.PatternRule `json:"rule"`        // The created rule, if one was created
	Apply       rules.Result        `json:"apply"`       // Counts of the rule application that followed
	Message     string              `json:"message"`
}

// AutoAssignSimilar promotes the draft's decision into a reusable rule whose
// pattern is the transaction's exact display name, then applies all active
// rules so the new rule also categorizes prior matching transactions.
//
// An already existing rule for the same pattern is not an error: the
// conflict degrades to applying the existing rules.
func (w *Workflow) AutoAssignSimilar(key string) (AutoAssignResult, error) {
	release, err := w.acquire(key)
	if err != nil {
		return AutoAssignResult{}, err
	}
	defer release()

	draft, err := w.Draft(key)
	if err != nil {
		return AutoAssignResult{}, err
	}

	leaf, err := w.resolveLeaf(draft)
	if err != nil {
		return AutoAssignResult{}, err
	}

	transaction, err := w.transaction(key)
	if err != nil {
		return AutoAssignResult{}, err
	}

	result := AutoAssignResult{}

	rule := models.PatternRule{
		NamePattern:          transaction.Name,
		CategoryDefinitionID: leaf.ID,
		Active:               true,
	}

	err = w.db.Create(&rule).Error
	switch {
	case err == nil:
		result.RuleCreated = true
		result.Rule = &rule
		result.Message = "rule created, matching transactions were categorized"
	case errors.Is(err, models.ErrRuleExists):
		// Soft success: the decision is already covered by an existing
		// rule, applying the active rules still categorizes everything
		log.Debug().Str("pattern", transaction.Name).Msg("rule already exists, applying active rules")
		result.Message = "a rule for this name already exists, the active rules were applied"
	default:
		return result, err
	}

	result.Apply, err = rules.ApplyAllActiveRules(w.db, w.ApplyOptions)
	if err != nil {
		return result, err
	}

	w.Discard(key)

	return result, nil
}

// acquire marks the key as having a commit in flight. It fails when one is
// already pending for the same key.
func (w *Workflow) acquire(key string) (release func(), err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight[key] {
		return nil, ErrCommitInFlight
	}
	w.inFlight[key] = true

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.inFlight, key)
	}, nil
}

// resolveLeaf validates the draft's path and resolves its deepest category.
func (w *Workflow) resolveLeaf(draft *Draft) (*categories.Node, error) {
	if len(draft.CategoryPath) == 0 {
		return nil, ErrPathEmpty
	}

	_, index, err := categories.LoadForest(w.db)
	if err != nil {
		return nil, err
	}

	leaf, ok := index.ByID(draft.Leaf())
	if !ok {
		// The category was deleted by another session, the caller should
		// refresh the tree
		return nil, w.db.First(&models.CategoryDefinition{}, draft.Leaf()).Error
	}

	return leaf, nil
}

func (w *Workflow) transaction(key string) (models.Transaction, error) {
	identifier, vendor, err := models.ParseKey(key)
	if err != nil {
		return models.Transaction{}, err
	}

	var transaction models.Transaction
	err = w.db.
		Where("identifier = ? AND vendor = ?", identifier, vendor).
		First(&transaction).Error

	return transaction, err
}

// categorize writes the category binding of a transaction.
func (w *Workflow) categorize(transaction models.Transaction, leaf *categories.Node, auto bool) error {
	return w.db.Model(&models.Transaction{}).
		Where("identifier = ? AND vendor = ?", transaction.Identifier, transaction.Vendor).
		Updates(map[string]any{
			"category_definition_id": leaf.ID,
			"category_type":          leaf.Kind,
			"category_name":          leaf.Name,
			"auto_categorized":       auto,
			"confidence":             1.0,
		}).Error
}
