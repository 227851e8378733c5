package rules_test

import (
	"sync"
	"time"

	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/AvnerAdda/shekelsync-sub000/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records delivered previews so tests can wait for them.
type collector struct {
	mu       sync.Mutex
	previews []rules.Preview
}

func (c *collector) deliver(preview rules.Preview, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.previews = append(c.previews, preview)
	}
}

func (c *collector) results() []rules.Preview {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]rules.Preview{}, c.previews...)
}

func (suite *TestSuiteStandard) TestSchedulerDebounce() {
	_ = suite.createTestTransaction(models.Transaction{Name: "STARBUCKS TLV"})

	scheduler := rules.NewScheduler(models.DB, 10*time.Millisecond)
	c := &collector{}

	// Simulated typing, only the final pattern may produce a preview
	scheduler.Schedule("draft", "S", 0, c.deliver)
	scheduler.Schedule("draft", "ST", 0, c.deliver)
	scheduler.Schedule("draft", "STARBUCKS", 0, c.deliver)

	require.Eventually(suite.T(), func() bool {
		return len(c.results()) > 0
	}, time.Second, 5*time.Millisecond)

	results := c.results()
	require.Len(suite.T(), results, 1)
	assert.Equal(suite.T(), "STARBUCKS", results[0].Pattern)
	assert.Equal(suite.T(), int64(1), results[0].TotalCount)
}

func (suite *TestSuiteStandard) TestSchedulerIndependentKeys() {
	_ = suite.createTestTransaction(models.Transaction{Name: "STARBUCKS TLV"})
	_ = suite.createTestTransaction(models.Transaction{Name: "AROMA TLV"})

	scheduler := rules.NewScheduler(models.DB, 10*time.Millisecond)
	first := &collector{}
	second := &collector{}

	scheduler.Schedule("a", "STARBUCKS", 0, first.deliver)
	scheduler.Schedule("b", "AROMA", 0, second.deliver)

	require.Eventually(suite.T(), func() bool {
		return len(first.results()) > 0 && len(second.results()) > 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(suite.T(), "STARBUCKS", first.results()[0].Pattern)
	assert.Equal(suite.T(), "AROMA", second.results()[0].Pattern)
}

func (suite *TestSuiteStandard) TestSchedulerCancel() {
	_ = suite.createTestTransaction(models.Transaction{Name: "STARBUCKS TLV"})

	scheduler := rules.NewScheduler(models.DB, 10*time.Millisecond)
	c := &collector{}

	scheduler.Schedule("draft", "STARBUCKS", 0, c.deliver)
	scheduler.Cancel("draft")

	// Give the timer a chance to fire if cancellation were broken
	time.Sleep(50 * time.Millisecond)
	assert.Empty(suite.T(), c.results())
}

func (suite *TestSuiteStandard) TestSchedulerDefaultDelay() {
	scheduler := rules.NewScheduler(models.DB, 0)
	require.NotNil(suite.T(), scheduler)

	assert.Equal(suite.T(), 500*time.Millisecond, rules.DefaultDebounce)
}
