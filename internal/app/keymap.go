package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyLive      = "l"
	KeyLiveUpper = "L"
	KeyHistory   = "h"
	KeyChar      = "c"
	KeyExport    = "e"
	KeyReload    = "r"
	KeyNext      = "j"
	KeyPrev      = "k"
	KeyDown      = "down"
	KeyUp        = "up"
	KeySystem1   = "1"
	KeySystem2   = "2"
	KeySystem3   = "3"
)
