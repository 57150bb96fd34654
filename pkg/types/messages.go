package types

// Client -> Server
// Start: {}
//
// Pick:
//   slot: 0 | 1 | 2
//
// Release:
//   row: number
//   col: number
//
// Rotate:
//   slot: 0 | 1 | 2 | -1 // -1 rotates the held piece
//
// Revive: {}
//
// Restart: {}
//
// Home: {}
//
// Preview (pure query, no state change):
//   slot: 0 | 1 | 2 | -1
//   row: number
//   col: number

// Server -> Client
// StateSnapshot:
//   version: number
//   state:
//     phase: "not_started" | "playing" | "game_over"
//     board: [{ row, col, color }] // occupied cells only, color "#RRGGBB"
//     pool: [Piece | null] // three slots
//     held: Piece | null
//     score, combo, revive_count, revives_left: number
//     high_score: number
//
// Piece:
//   base_index, rotation_index, slot: number
//   kind: "normal" | "bomb"
//   color: string
//   exception: boolean
//   cells: [{ x, y }] // canonical offsets of the current rotation
//
// Preview:
//   cells: [{ row, col }]
//   rows: number[] // rows that would become full
//   cols: number[]
//
// Error:
//   error: string
