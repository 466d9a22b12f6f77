package app

// Key binding constants used in handleKey.
const (
	KeyQuit         = "q"
	KeyQuitUpper    = "Q"
	KeyCtrlC        = "ctrl+c"
	KeySpace        = " "
	KeyTab          = "tab"
	KeyShiftTab     = "shift+tab"
	KeyEsc          = "esc"
	KeyUp           = "up"
	KeyDown         = "down"
	KeyJ            = "j"
	KeyK            = "k"
	KeyEnter        = "enter"
	KeyCitation     = "c"
	KeyCitationUp   = "C"
	KeyCitationCtrl = "ctrl+o"
	KeyOpenPlayer   = "o"
	KeySaveDocument = "s"
	KeyBack         = "left"
	KeyForward      = "right"
)

// SearchPrefix turns a conversation input into a transcript search.
const SearchPrefix = "/search "
