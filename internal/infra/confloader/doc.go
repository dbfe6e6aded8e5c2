// Package confloader loads layered configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Values applied through LoadMap, typically command-line flags
//  2. QIPC_ prefixed environment variables
//  3. Aliased environment variables such as KDBPLUS_ACCOUNT_FILE
//  4. The YAML configuration file
//  5. Defaults already present in the target struct
//
// Watcher reports changes to watched files through fsnotify; the credential
// store and the server use it for hot reload.
package confloader
