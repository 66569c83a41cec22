package models

// InventoryItem is a prepared component held in the player's hotbar
type InventoryItem struct {
	Name    string      `json:"name"`
	Station StationType `json:"station"`
	OrderID string      `json:"order_id"`
}

// stationProducts names what each process station hands the player on success
var stationProducts = map[StationType]string{
	StationFridge:  "fresh ingredients",
	StationPrep:    "chopped ingredients",
	StationStove:   "sauteed base",
	StationGrill:   "grilled protein",
	StationFry:     "fried side",
	StationOven:    "baked dish",
	StationPlating: "plated dish",
	StationDrinks:  "drink",
	StationDessert: "dessert",
}

// ProductOf returns the item produced by a process station
func ProductOf(t StationType) (string, bool) {
	name, ok := stationProducts[t]
	return name, ok
}

// Inventory is the small set of items carried between stations
type Inventory struct {
	Items    []InventoryItem `json:"items"`
	Capacity int             `json:"capacity"`
}

// DefaultInventoryCapacity matches the hotbar slot count
const DefaultInventoryCapacity = 6

// NewInventory creates an empty hotbar
func NewInventory(capacity int) *Inventory {
	if capacity <= 0 {
		capacity = DefaultInventoryCapacity
	}
	return &Inventory{Capacity: capacity}
}

// Add stores an item, dropping the oldest when the hotbar is full
func (inv *Inventory) Add(item InventoryItem) {
	if len(inv.Items) >= inv.Capacity {
		inv.Items = inv.Items[1:]
	}
	inv.Items = append(inv.Items, item)
}

// Clear empties the hotbar and returns what it held
func (inv *Inventory) Clear() []InventoryItem {
	items := inv.Items
	inv.Items = nil
	return items
}

// Len returns the number of held items
func (inv *Inventory) Len() int {
	return len(inv.Items)
}
