// Package misc keeps program identity which is set at build time.
package misc

// set with -ldflags "-X premail/misc.version=... -X premail/misc.gitHash=..."
var (
	appName = "premail"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
