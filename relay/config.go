package relay

// Config is the relay server configuration.
type Config struct {
	// Address to listen on (e.g., ":3000")
	ListenAddr string

	// ChannelSecret verifies the signature of every webhook call.
	ChannelSecret string
}
