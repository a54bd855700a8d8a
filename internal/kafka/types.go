package kafka

import "time"

// DefaultTool is the consumer group administration tool shipped with the
// Confluent distribution. The Apache tarball names it kafka-consumer-groups.sh.
const DefaultTool = "kafka-consumer-groups"

// ClusterConfig describes how to reach one cluster through the admin tool.
type ClusterConfig struct {
	Name            string // cluster1, cluster2
	CLIDir          string // directory containing the admin tool
	Tool            string // defaults to DefaultTool
	BootstrapServer string // host:port, comma-separated
	CommandConfig   string // admin client properties (auth, TLS)
}

// waitDelay bounds how long a killed tool may keep its output pipes open.
const waitDelay = 5 * time.Second

// stderrLimit caps how much tool stderr is kept for error messages.
const stderrLimit = 4 << 10
