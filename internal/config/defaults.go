package config

const (
	defaultLogDir          = "~/.local/share/digitprep/logs"
	defaultDatasetURL      = "http://download.tensorflow.org/data/speech_commands_v0.02.tar.gz"
	defaultFolderInArchive = "SpeechCommands"
	defaultArchiveName     = "speech_commands_v0.02"
	defaultValidationList  = "validation_list.txt"
	defaultTestingList     = "testing_list.txt"
	defaultDownloadTimeout = 3600
	defaultSampleRate      = 16000
	defaultClipSamples     = 16000
	defaultTrainManifest   = "train.txt"
	defaultValManifest     = "val.txt"
	defaultTestManifest    = "test.txt"
	defaultLedgerFile      = "ledger.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// DigitClasses lists the spoken-digit labels kept from the corpus.
var DigitClasses = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	classes := make([]string, len(DigitClasses))
	copy(classes, DigitClasses)
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Dataset: Dataset{
			URL:             defaultDatasetURL,
			FolderInArchive: defaultFolderInArchive,
			ArchiveName:     defaultArchiveName,
			ValidationList:  defaultValidationList,
			TestingList:     defaultTestingList,
			Download:        true,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Filter: Filter{
			Classes:     classes,
			SampleRate:  defaultSampleRate,
			ClipSamples: defaultClipSamples,
		},
		Manifests: Manifests{
			Train:      defaultTrainManifest,
			Validation: defaultValManifest,
			Test:       defaultTestManifest,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Cleanup: Cleanup{
			RemoveExtracted: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
