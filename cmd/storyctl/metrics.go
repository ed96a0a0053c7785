package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "storyctl"

// pushMetrics sends the process metrics, including generation counters,
// to a Pushgateway once the command has finished.
func pushMetrics(url, command string) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	pusher := push.New(url, jobName).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", fmt.Sprintf("%s-%d", hostname, os.Getpid())).
		Grouping("command", command)
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
