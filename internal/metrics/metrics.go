package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll results.
const (
	PollOK        = "ok"
	PollReadError = "read_error"
)

// Light commands and their outcomes.
const (
	CommandTurnOn  = "turn_on"
	CommandTurnOff = "turn_off"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_light_polls_total",
		Help: "Poll cycles by result",
	}, []string{"result"}) // result=ok|read_error

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_light_commands_total",
		Help: "Requests sent to the light by command and outcome",
	}, []string{"command", "outcome"})

	statusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_light_status_changes_total",
		Help: "Presence changes by the color band they switched to",
	}, []string{"band"})

	malformedLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_light_malformed_lines_total",
		Help: "State lines skipped because they did not match the expected layout",
	})
)

// ObservePoll counts one poll cycle.
func ObservePoll(result string) {
	pollsTotal.WithLabelValues(result).Inc()
}

// ObserveCommand counts one request to the light.
func ObserveCommand(command string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}

	commandsTotal.WithLabelValues(command, outcome).Inc()
}

// ObserveStatusChange counts a presence change into band.
func ObserveStatusChange(band string) {
	statusChangesTotal.WithLabelValues(band).Inc()
}

// ObserveMalformedLine counts one skipped log line.
func ObserveMalformedLine() {
	malformedLinesTotal.Inc()
}
