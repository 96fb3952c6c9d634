package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriteria_Qualifies(t *testing.T) {
	base := Session{MinAgeLimit: 18, AvailableCapacity: 5, AvailableCapacityDose1: 3, AvailableCapacityDose2: 2}

	tests := []struct {
		name     string
		criteria Criteria
		mutate   func(s *Session)
		want     bool
	}{
		{name: "dose 1 available", criteria: Criteria{MinAge: 18, Dose: DoseFirst}, want: true},
		{name: "dose 2 available", criteria: Criteria{MinAge: 18, Dose: DoseSecond}, want: true},
		{name: "lower age limit still qualifies", criteria: Criteria{MinAge: 45, Dose: DoseFirst}, want: true},
		{
			name:     "age limit above threshold",
			criteria: Criteria{MinAge: 18, Dose: DoseFirst},
			mutate:   func(s *Session) { s.MinAgeLimit = 45 },
		},
		{
			name:     "no total capacity",
			criteria: Criteria{MinAge: 18, Dose: DoseFirst},
			mutate:   func(s *Session) { s.AvailableCapacity = 0 },
		},
		{
			name:     "negative total capacity",
			criteria: Criteria{MinAge: 45, Dose: DoseSecond},
			mutate:   func(s *Session) { s.AvailableCapacity = -1 },
		},
		{
			name:     "dose 1 exhausted",
			criteria: Criteria{MinAge: 18, Dose: DoseFirst},
			mutate:   func(s *Session) { s.AvailableCapacityDose1 = 0 },
		},
		{
			name:     "dose 1 exhausted does not matter for dose 2",
			criteria: Criteria{MinAge: 18, Dose: DoseSecond},
			mutate:   func(s *Session) { s.AvailableCapacityDose1 = 0 },
			want:     true,
		},
		{
			name:     "dose 2 exhausted",
			criteria: Criteria{MinAge: 18, Dose: DoseSecond},
			mutate:   func(s *Session) { s.AvailableCapacityDose2 = 0 },
		},
		{name: "unknown dose", criteria: Criteria{MinAge: 18, Dose: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			assert.Equal(t, tt.want, tt.criteria.Qualifies(s))
		})
	}
}

func TestCriteria_AllowsCenter(t *testing.T) {
	free := Center{FeeType: FeeTypeFree}
	paid := Center{FeeType: FeeTypePaid}
	unknown := Center{}
	lower := Center{FeeType: "free"}

	both := Criteria{FeeFilter: FeeFilterBoth}
	assert.True(t, both.AllowsCenter(free))
	assert.True(t, both.AllowsCenter(paid))
	assert.True(t, both.AllowsCenter(unknown))

	onlyFree := Criteria{FeeFilter: FeeFilterFree}
	assert.True(t, onlyFree.AllowsCenter(free))
	assert.False(t, onlyFree.AllowsCenter(paid))
	assert.False(t, onlyFree.AllowsCenter(unknown))
	assert.False(t, onlyFree.AllowsCenter(lower))

	onlyPaid := Criteria{FeeFilter: FeeFilterPaid}
	assert.True(t, onlyPaid.AllowsCenter(paid))
	assert.False(t, onlyPaid.AllowsCenter(free))

	folded := Criteria{FeeFilter: FeeFilterFree, CaseInsensitiveFee: true}
	assert.True(t, folded.AllowsCenter(lower))
	assert.False(t, folded.AllowsCenter(paid))
}
