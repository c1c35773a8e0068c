// Command sessions inspects and clears the persisted session store used
// by the gallery player to resume a slideshow across restarts.
package main
