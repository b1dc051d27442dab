package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeySpace     = " "
	KeyEnter     = "enter"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyJ         = "j"
	KeyK         = "k"
	KeyBack      = "b"
	KeySkip      = "s"
	KeyMode1     = "1"
	KeyMode2     = "2"
	KeyMode3     = "3"
)
