package annif

// Version is the client release embedded in the outgoing User-Agent header.
const Version = "0.2.4"

// UserAgent identifies this client to the Annif service.
const UserAgent = "annif-client-go/" + Version
