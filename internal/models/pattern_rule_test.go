package models_test

import (
	"encoding/json"

	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestPatternRuleEmptyPattern() {
	category := suite.createTestCategory(models.CategoryDefinition{})

	err := models.DB.Create(&models.PatternRule{
		NamePattern:          "  \t",
		CategoryDefinitionID: category.ID,
	}).Error

	assert.ErrorIs(suite.T(), err, models.ErrPatternEmpty)
}

func (suite *TestSuiteStandard) TestPatternRuleTargetMustExist() {
	err := models.DB.Create(&models.PatternRule{
		NamePattern:          "STARBUCKS",
		CategoryDefinitionID: 591,
	}).Error

	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestPatternRuleUniquePattern() {
	category := suite.createTestCategory(models.CategoryDefinition{})

	_ = suite.createTestRule(models.PatternRule{
		NamePattern:          "STARBUCKS",
		CategoryDefinitionID: category.ID,
	})

	err := models.DB.Create(&models.PatternRule{
		NamePattern:          "STARBUCKS",
		CategoryDefinitionID: category.ID,
	}).Error

	assert.ErrorIs(suite.T(), err, models.ErrRuleExists)
}

func (suite *TestSuiteStandard) TestPatternRuleRecreateAfterDelete() {
	category := suite.createTestCategory(models.CategoryDefinition{})

	rule := suite.createTestRule(models.PatternRule{
		NamePattern:          "STARBUCKS TLV",
		CategoryDefinitionID: category.ID,
	})

	err := models.DB.Delete(&rule).Error
	require.Nil(suite.T(), err)

	// Deletion frees the pattern, a new rule can claim it again
	err = models.DB.Create(&models.PatternRule{
		NamePattern:          "STARBUCKS TLV",
		CategoryDefinitionID: category.ID,
	}).Error
	require.Nil(suite.T(), err)

	err = models.DB.First(&models.PatternRule{}, rule.ID).Error
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound, "deleted rule is still in the table")
}

func (suite *TestSuiteStandard) TestPatternRuleKindDenormalized() {
	category := suite.createTestCategory(models.CategoryDefinition{
		Kind: models.KindInvestment,
	})

	rule := suite.createTestRule(models.PatternRule{
		NamePattern:          "MEITAV",
		CategoryDefinitionID: category.ID,
	})

	assert.Equal(suite.T(), models.KindInvestment, rule.Kind, "rule kind is not inherited from the target category")
}

func (suite *TestSuiteStandard) TestPatternRuleBeforeUpdate() {
	expense := suite.createTestCategory(models.CategoryDefinition{Kind: models.KindExpense})
	income := suite.createTestCategory(models.CategoryDefinition{Kind: models.KindIncome})

	rule := suite.createTestRule(models.PatternRule{
		NamePattern:          "SALARY",
		CategoryDefinitionID: expense.ID,
	})

	err := models.DB.Model(&rule).Select("CategoryDefinitionID").Updates(models.PatternRule{CategoryDefinitionID: income.ID}).Error
	require.Nil(suite.T(), err)

	var reloaded models.PatternRule
	err = models.DB.First(&reloaded, rule.ID).Error
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), models.KindIncome, reloaded.Kind, "rule kind was not updated with the target category")
}

func (suite *TestSuiteStandard) TestPatternRuleExport() {
	t := suite.T()

	category := suite.createTestCategory(models.CategoryDefinition{})
	for i := 0; i < 2; i++ {
		_ = suite.createTestRule(models.PatternRule{CategoryDefinitionID: category.ID})
	}

	raw, err := models.PatternRule{}.Export()
	if err != nil {
		require.Fail(t, "pattern rule export failed", err)
	}

	var rules []models.PatternRule
	err = json.Unmarshal(raw, &rules)
	if err != nil {
		require.Fail(t, "JSON could not be unmarshaled", err)
	}

	require.Len(t, rules, 2, "number of pattern rules in export is wrong")
}
