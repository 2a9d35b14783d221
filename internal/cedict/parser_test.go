package cedict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    []Entry
		wantErr string
	}{
		{
			name: "single entry",
			source: "中國 中国 [Zhong1 guo2] /China/\n",
			want: []Entry{
				{
					Traditional: "中國",
					Simplified:  "中国",
					Readings:    []Reading{{Pinyin: "Zhong1 guo2", Glosses: []string{"China"}}},
				},
			},
		},
		{
			name: "comments and blank lines are skipped",
			source: "# CC-CEDICT\n#! version=1\n\n人 人 [ren2] /man/person/people/\n",
			want: []Entry{
				{
					Traditional: "人",
					Simplified:  "人",
					Readings:    []Reading{{Pinyin: "ren2", Glosses: []string{"man", "person", "people"}}},
				},
			},
		},
		{
			name: "cross-reference glosses are filtered",
			source: "好 好 [hao3] /good/see also 很好/fine/\n",
			want: []Entry{
				{
					Traditional: "好",
					Simplified:  "好",
					Readings:    []Reading{{Pinyin: "hao3", Glosses: []string{"good", "fine"}}},
				},
			},
		},
		{
			name: "readings sharing a spelling pair are merged",
			source: "好 好 [hao3] /good/\n好 好 [hao4] /to like/\n",
			want: []Entry{
				{
					Traditional: "好",
					Simplified:  "好",
					Readings: []Reading{
						{Pinyin: "hao3", Glosses: []string{"good"}},
						{Pinyin: "hao4", Glosses: []string{"to like"}},
					},
				},
			},
		},
		{
			name:    "malformed line is fatal",
			source:  "中國 中国 [Zhong1 guo2] /China/\nnot a dictionary line\n",
			wantErr: "line 2",
		},
		{
			name:    "missing gloss delimiters are fatal",
			source:  "人 人 [ren2] person\n",
			wantErr: "malformed dictionary line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.source))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
