package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		caption  string
		want     content.Category
		wantConf float64
	}{
		{name: "empty", caption: "", want: content.CategoryOther, wantConf: 0},
		{name: "whitespace", caption: "   \n", want: content.CategoryOther, wantConf: 0},
		{name: "no keywords", caption: "hello world", want: content.CategoryOther, wantConf: 0},
		{
			name:     "promotional english",
			caption:  "discount sale offer buy now",
			want:     content.CategoryPromotional,
			wantConf: 4.0 / 16.0,
		},
		{
			name:     "arabic educational",
			caption:  "درس جديد لتطوير مهارة القراءة",
			want:     content.CategoryEducational,
			wantConf: 3.0 / 16.0,
		},
		{
			name:     "single match below threshold",
			caption:  "big event tonight",
			want:     content.CategoryOther,
			wantConf: 0,
		},
		{
			name:     "tie goes to first defined category",
			caption:  "contest game community family",
			want:     content.CategoryContestGame,
			wantConf: 2.0 / 14.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := Classify(tt.caption)
			assert.Equal(t, tt.want, got)
			assert.InDelta(t, tt.wantConf, conf, 1e-9)
			assert.GreaterOrEqual(t, conf, 0.0)
			assert.LessOrEqual(t, conf, 1.0)
		})
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	got, conf := Classify("BIG DISCOUNT, SALE and OFFER")
	assert.Equal(t, content.CategoryPromotional, got)
	assert.Greater(t, conf, 0.1)
}
