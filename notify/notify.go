// Package notify carries short user-facing messages from flows to whatever
// surface shows them.
package notify

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

type Notice struct {
	Level Level
	Text  string
}

type Notifier interface {
	Notify(Notice)
}

type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

func Success(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }
func Warning(text string) Notice { return Notice{Level: LevelWarning, Text: text} }
func Error(text string) Notice   { return Notice{Level: LevelError, Text: text} }
