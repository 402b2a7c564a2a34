package simcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) TestCellStateConfigValidateCatchesAllFields() {
	var cfg CellStateConfig
	errs := cfg.Validate()
	assert.True(s.T(), errs.HasErrors())
	assert.Len(s.T(), errs, 5)
}

func (s *ConfigTestSuite) TestCellStateConfigValidateAcceptsGoodConfig() {
	cfg := CellStateConfig{
		NumMachines:     1,
		CpusPerMachine:  1,
		MemPerMachine:   1,
		ConflictMode:    ResourceFit,
		TransactionMode: Incremental,
	}
	assert.False(s.T(), cfg.Validate().HasErrors())
}

func (s *ConfigTestSuite) TestMesosAllocatorConfigValidate() {
	cfg := MesosAllocatorConfig{ConstantThinkTime: -1, OfferBatchInterval: 0}
	errs := cfg.Validate()
	assert.True(s.T(), errs.HasErrors())
	assert.Len(s.T(), errs, 2)
}

func (s *ConfigTestSuite) TestDefaultMesosAllocatorConfigIsValid() {
	cfg := DefaultMesosAllocatorConfig()
	assert.False(s.T(), cfg.Validate().HasErrors())
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
