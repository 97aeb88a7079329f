package publishers

// Logger is the part of the application logger publishers write to.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type discard struct{}

func (discard) DebugObj(string, string, interface{}) {}
func (discard) WarnObj(string, string, interface{})  {}
func (discard) ErrorObj(string, string, interface{}) {}

func orDiscard(log Logger) Logger {
	if log == nil {
		return discard{}
	}
	return log
}
