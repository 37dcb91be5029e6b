package app

const (
	Name           = "dsrelay"
	SourceURL      = "https://git.skobk.in/skobkin/dsrelay"
	ConfigFilename = "config.json"
	DBFilename     = "dsrelay.db"
	LogFilename    = "dsrelay.log"
	DefaultIPPort  = 17123
	HistoryLimit   = 50
)
