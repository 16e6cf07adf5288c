package app

// Key binding constants used in handleKey.
const (
	KeyQuit       = "q"
	KeyQuitUpper  = "Q"
	KeyCtrlC      = "ctrl+c"
	KeySpace      = " "
	KeyEnter      = "enter"
	KeyEsc        = "esc"
	KeyBackspace  = "backspace"
	KeyUp         = "up"
	KeyDown       = "down"
	KeyLeft       = "left"
	KeyRight      = "right"
	KeyJ          = "j"
	KeyK          = "k"
	KeyH          = "h"
	KeyL          = "l"
	KeyStop       = "s"
	KeyVoice      = "v"
	KeyTranslate  = "t"
	KeyRate       = "r"
	KeyJump       = "g"
	KeyUpload     = "u"
	KeyDelete     = "d"
	KeyConfirmYes = "y"
	KeyConfirmNo  = "n"
)
