package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/classbook/core"
)

var levelRanks = map[string]int{
	rollbar.DEBUG: 0,
	rollbar.INFO:  1,
	rollbar.WARN:  2,
	rollbar.ERR:   3,
	rollbar.CRIT:  4,
}

// RollbarLogger prints to a std logger and reports to rollbar (when enabled).
// Events below the minimum level are dropped.
type RollbarLogger struct {
	std      *log.Logger
	minLevel string
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{std: std, minLevel: rollbar.INFO}
	if conf.Debug {
		l.minLevel = rollbar.DEBUG
	}
	return l
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// split separates the reported person from the other args.
// expected fmt: msg | error, map[string]interface{}, core.Person
func split(args []interface{}) (*core.Person, []interface{}) {
	var person *core.Person
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		if p, ok := arg.(core.Person); ok {
			if person == nil { // only keep one Person
				person = &p
			}
			continue
		}
		rest = append(rest, arg)
	}
	return person, rest
}

func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	if levelRanks[level] < levelRanks[l.minLevel] {
		return
	}
	person, rest := split(args)

	if person != nil {
		rollbar.SetPerson(person.ID, person.Username, "")
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, append([]interface{}{msg}, rest...)...)

	l.std.Printf("[%s] %s", level, msg)
	if person != nil {
		l.std.Printf("  person: %s (%s)", person.Username, person.Role)
	}
	for _, arg := range rest {
		l.std.Printf("  %+v", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
