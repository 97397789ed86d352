package room

import "github.com/mcdev12/planningpoker/go/internal/models"

// ElectHost picks the next host among the remaining players: the player whose id sorts
// first. The choice depends only on the set of ids, never on join or disconnect order,
// so back-to-back departures always converge on one host. Returns "" when nobody remains.
func ElectHost(players map[string]*models.Player) string {
	host := ""
	for id := range players {
		if host == "" || id < host {
			host = id
		}
	}
	return host
}
