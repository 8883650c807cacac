package config

import "time"

// SpeedDaemonConfig configures the Speed-Enforcement Dispatcher. It has no
// tunables beyond Base; roads and limits arrive over the wire.
type SpeedDaemonConfig struct {
	Base `mapstructure:",squash"`
}

func DefaultSpeedDaemonConfig() SpeedDaemonConfig {
	return SpeedDaemonConfig{Base: DefaultBase()}
}

// LRCPConfig configures the Reliable-Datagram Transport's retransmission
// timers.
type LRCPConfig struct {
	Base          `mapstructure:",squash"`
	RetryTimeout  time.Duration `mapstructure:"retry_timeout"`
	ExpireTimeout time.Duration `mapstructure:"expire_timeout"`
}

func DefaultLRCPConfig() LRCPConfig {
	return LRCPConfig{
		Base:          DefaultBase(),
		RetryTimeout:  time.Second,
		ExpireTimeout: 60 * time.Second,
	}
}

// VCSConfig configures the Versioned File Store. No tunables beyond Base.
type VCSConfig struct {
	Base `mapstructure:",squash"`
}

func DefaultVCSConfig() VCSConfig {
	return VCSConfig{Base: DefaultBase()}
}

// PestControlConfig configures the Pest-Control Mediator's upstream
// authority dependency.
type PestControlConfig struct {
	Base          `mapstructure:",squash"`
	AuthorityAddr string `mapstructure:"authority_addr" validate:"required,hostname_port"`
}

func DefaultPestControlConfig() PestControlConfig {
	cfg := PestControlConfig{Base: DefaultBase()}
	cfg.AuthorityAddr = "pestcontrol.protohackers.com:20547"
	return cfg
}

// JobCentreConfig configures the Job Centre. No tunables beyond Base.
type JobCentreConfig struct {
	Base `mapstructure:",squash"`
}

func DefaultJobCentreConfig() JobCentreConfig {
	return JobCentreConfig{Base: DefaultBase()}
}

// PrimeTimeConfig configures the prime probe. No tunables beyond Base.
type PrimeTimeConfig struct {
	Base `mapstructure:",squash"`
}

func DefaultPrimeTimeConfig() PrimeTimeConfig {
	return PrimeTimeConfig{Base: DefaultBase()}
}

// MeanSendConfig configures the means-to-an-end server. No tunables beyond
// Base.
type MeanSendConfig struct {
	Base `mapstructure:",squash"`
}

func DefaultMeanSendConfig() MeanSendConfig {
	return MeanSendConfig{Base: DefaultBase()}
}

// BudgetChatConfig configures the chat relay. No tunables beyond Base.
type BudgetChatConfig struct {
	Base `mapstructure:",squash"`
}

func DefaultBudgetChatConfig() BudgetChatConfig {
	return BudgetChatConfig{Base: DefaultBase()}
}

// UDPKVConfig configures the UDP key-value store. No tunables beyond Base.
type UDPKVConfig struct {
	Base `mapstructure:",squash"`
}

func DefaultUDPKVConfig() UDPKVConfig {
	return UDPKVConfig{Base: DefaultBase()}
}

// MITMConfig configures the intercepting proxy's fixed upstream.
type MITMConfig struct {
	Base         `mapstructure:",squash"`
	UpstreamAddr string `mapstructure:"upstream_addr" validate:"required,hostname_port"`
}

func DefaultMITMConfig() MITMConfig {
	cfg := MITMConfig{Base: DefaultBase()}
	cfg.UpstreamAddr = "chat.protohackers.com:16963"
	return cfg
}
