package types

// SnapshotVersion is written into every SavedGame. Files without a version
// (the original savedGame.json layout) decode as version 0.
const SnapshotVersion = 1

// SavedGame is the persisted form of an in-progress session. Pieces are
// stored by catalog index and rotation index, never as raw offsets.
type SavedGame struct {
	Version             int           `json:"version,omitempty" msgpack:"version,omitempty"`
	Score               int           `json:"score" msgpack:"score"`
	SpawnCounter        int           `json:"spawnCounter" msgpack:"spawnCounter"`
	SpawnThreshold      int           `json:"spawnThreshold" msgpack:"spawnThreshold"`
	BlackSpawnCounter   int           `json:"blackSpawnCounter" msgpack:"blackSpawnCounter"`
	BlackSpawnThreshold int           `json:"blackSpawnThreshold" msgpack:"blackSpawnThreshold"`
	ComboCounter        int           `json:"comboCounter" msgpack:"comboCounter"`
	ReviveCount         int           `json:"reviveCount" msgpack:"reviveCount"`
	GridBlocks          []SavedBlock  `json:"gridBlocks" msgpack:"gridBlocks"`
	CurrentPiece        *SavedPiece   `json:"currentPiece" msgpack:"currentPiece"`
	SpawnOptions        []*SavedPiece `json:"spawnOptions" msgpack:"spawnOptions"` // one entry per slot, null when empty
}

// SavedBlock is one occupied board cell.
type SavedBlock struct {
	Row   int    `json:"row" msgpack:"row"`
	Col   int    `json:"col" msgpack:"col"`
	Color string `json:"color" msgpack:"color"`
}

// SavedPiece keeps the original field names. Color is only read: version 1
// files written before the switch to blockColor carry it instead.
type SavedPiece struct {
	BaseIndex             int        `json:"baseIndex" msgpack:"baseIndex"`
	RotationIndex         int        `json:"rotationIndex" msgpack:"rotationIndex"`
	BlockColor            string     `json:"blockColor" msgpack:"blockColor"`
	Color                 string     `json:"color,omitempty" msgpack:"color,omitempty"`
	Slot                  int        `json:"slot" msgpack:"slot"`
	OriginalSpawnPosition SavedPoint `json:"originalSpawnPosition" msgpack:"originalSpawnPosition"`
	DisplayScale          float64    `json:"displayScale" msgpack:"displayScale"`
	ExceptionSpawn        bool       `json:"exceptionSpawn" msgpack:"exceptionSpawn"`
	IsBlackSpawn          bool       `json:"isBlackSpawn" msgpack:"isBlackSpawn"`
}

type SavedPoint struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}
