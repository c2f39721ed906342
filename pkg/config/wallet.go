package config

// Wallet points at a NEP-6 wallet file a service should unlock on startup,
// together with the password needed to decrypt its default account.
type Wallet struct {
	Path     string `yaml:"Path"`
	Password string `yaml:"Password"`
}
