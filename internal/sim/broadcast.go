package sim

import (
	"log"

	"github.com/rtype/server/internal/wire"
)

// sendTo transmits one already-encoded datagram frame. Best effort: a send
// failure is logged and otherwise ignored, matching the broadcast policy
// used throughout the system; the endpoint stays bound and keeps receiving
// broadcasts.
func (s *Simulation) sendTo(endpoint string, data []byte) {
	if err := s.datagram.SendTo(endpoint, data); err != nil {
		log.Printf("sim: room %d: send to %s: %v", s.RoomID, endpoint, err)
	}
}

func (s *Simulation) broadcastToAllBoundLocked(data []byte) {
	for endpoint := range s.endpointSeat {
		s.sendTo(endpoint, data)
	}
}

func (s *Simulation) broadcastEntityCreateLocked(e *Entity) {
	s.broadcastToAllBoundLocked(s.codec.EncodeEntityCreate(e.toEntityCreate()))
}

// broadcastLocked emits one ENTITY_UPDATE batch and one GAME_STATE to every
// bound endpoint once per tick.
func (s *Simulation) broadcastLocked() {
	updates := make([]wire.EntityUpdate, 0, len(s.entities))
	for _, e := range s.entities {
		updates = append(updates, e.toEntityUpdate())
	}
	payload := s.codec.EncodeEntityUpdate(updates)
	statePayload := s.codec.EncodeGameState(s.score)

	for endpoint := range s.endpointSeat {
		s.sendTo(endpoint, payload)
		s.sendTo(endpoint, statePayload)
	}
}
