// Package cli locates the proxy executable and builds its command line.
//
// Discovery searches in the following order:
//  1. An explicit path (Config.ExplicitPath), which disables every other location
//  2. The TOOLBRIDGE_PROXY_PATH environment variable
//  3. The system PATH
//  4. The directory holding the running executable, ~/go/bin and /usr/local/bin
//
// A found binary is probed with -version and a warning is logged when it is
// older than this library. The probe can be skipped via Config.SkipVersionCheck
// or the TOOLBRIDGE_SKIP_VERSION_CHECK environment variable.
package cli
