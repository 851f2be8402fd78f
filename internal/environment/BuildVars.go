package environment

/**
Variables that are set during build
*/

// BuildTime is the time of the build (auto-generated value)
var BuildTime = "Dev Build"

// Builder is the name of builder (auto-generated value)
var Builder = "Manual Build"
