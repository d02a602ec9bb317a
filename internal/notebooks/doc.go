// Package notebooks locates Jupyter notebooks in a working tree and strips
// their execution outputs.
package notebooks
