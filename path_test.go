package dat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"mixed case backslashes", `DATA\SPRITES\Foo.FRM`, "data/sprites/foo.frm"},
		{"already normal", "art/critters/hmjmpsaa.frm", "art/critters/hmjmpsaa.frm"},
		{"forward slashes kept", "ART/Tiles/GRID000.FRM", "art/tiles/grid000.frm"},
		{"mixed separators", `maps\ARTEMPLE/map.GAM`, "maps/artemple/map.gam"},
		{"empty", "", ""},
		{"leading separator", `\COLOR.PAL`, "/color.pal"},
		{"non-ascii untouched", "TEXT/ÄÖ.MSG", "text/ÄÖ.msg"},
		{"doubled backslash", `A\\B`, "a//b"},
		{"cp1251 bytes untouched", "ART\\\xC4\xE0\xED.FRM", "art/\xC4\xE0\xED.frm"},
		{"cp866 bytes untouched", "\x80\x9F\xA0.MSG", "\x80\x9F\xA0.msg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFilename(tt.input))
		})
	}
}
