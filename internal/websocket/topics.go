package websocket

// TopicOutbound carries every outbound frame, direct and broadcast alike.
// A message with a ConnID targets that connection; one without targets every
// live connection. Funneling both kinds through one topic delivers frames to
// each connection in publish order, so a direct message and the roster update
// that follows it cannot swap places in flight.
const TopicOutbound = "ws.outbound"
