package cliconstants

// Version is the version of the command line client
const Version = "1.0.0"

// DefaultConfigFileName is the default config file name
const DefaultConfigFileName = "casedrop-cli.json"

// ExitRuntimeError is used if an operation failed
const ExitRuntimeError = 1

// ExitInvalidParameter is used if a parameter has an invalid value
const ExitInvalidParameter = 2

// ExitUsage is used if the command line could not be parsed
const ExitUsage = 3
