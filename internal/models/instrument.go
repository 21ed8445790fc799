package models

// Instrument is configured once at startup and never changes afterwards.
type Instrument struct {
	ID            string `yaml:"id" json:"id"`             // e.g. NIFTY
	Exchange      string `yaml:"exchange" json:"exchange"` // e.g. NSE
	Token         string `yaml:"token" json:"token"`       // SmartAPI symbol token
	TradingSymbol string `yaml:"symbol" json:"symbol"`
}

func DefaultInstruments() []Instrument {
	return []Instrument{
		{ID: "NIFTY", Exchange: "NSE", Token: "99926000", TradingSymbol: "NIFTY 50"},
		{ID: "BANKNIFTY", Exchange: "NSE", Token: "99926009", TradingSymbol: "Nifty Bank"},
	}
}
