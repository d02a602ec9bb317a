// Package pathutils resolves user-supplied filesystem paths for the clone root, report and log files.
package pathutils
