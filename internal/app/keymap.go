package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeySpace     = " "
	KeyRecord    = "r"
	KeyGenerate  = "g"
	KeyPlay      = "p"
	KeyDiscard   = "d"
	KeySaveAudio = "s"
	KeyExport    = "e"
	KeyNew       = "n"
	KeyDismiss   = "esc"
	KeyUp        = "up"
	KeyDown      = "down"
)
