package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultClassify(t *testing.T) {
	cat := Default()
	tests := []struct {
		name string
		want Class
	}{
		{"build", ClassValid},
		{"teardown", ClassValid},
		{"meta", ClassCore},
		{"description", ClassCore},
		{"notaphase", ClassUnknown},
		{"Build", ClassUnknown},
		{"", ClassUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cat.Classify(tc.name))
		})
	}
}

func TestNewKeepsSetsDisjoint(t *testing.T) {
	cat := New([]string{"build", "meta", "test"}, []string{"meta"})
	assert.Equal(t, []string{"build", "test"}, cat.Order())
	assert.Equal(t, ClassCore, cat.Classify("meta"))
}

func TestOrderReturnsCopy(t *testing.T) {
	cat := Default()
	order := cat.Order()
	order[0] = "mutated"
	assert.Equal(t, Setup, cat.Order()[0])
}
