package render

import "github.com/killallgit/partstream/pkg/icons"

var glyphs = map[icons.Icon]string{
	icons.IconTool:       "⚙",
	icons.IconFile:       "▤",
	icons.IconFileEdit:   "✎",
	icons.IconFolder:     "▣",
	icons.IconTerminal:   "❯",
	icons.IconSearch:     "⌕",
	icons.IconWebSearch:  "◍",
	icons.IconGit:        "⎇",
	icons.IconCheckpoint: "◆",
	icons.IconPlugin:     "⊕",
	icons.IconThinking:   "✻",
}

// Glyph returns the terminal glyph of an icon. Unknown icons render as the
// generic tool glyph.
func Glyph(icon icons.Icon) string {
	if g, ok := glyphs[icon]; ok {
		return g
	}
	return glyphs[icons.IconTool]
}
