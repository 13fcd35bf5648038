// Package graphql serves and validates mock traffic for GraphQL schemas.
//
// Every root field of the schema is an operation, identified as
// "query.<field>", "mutation.<field>" or "subscription.<field>". A request is
// resolved from its query document: the operation named by operationName (or
// the first one), and its first selected root field.
//
// Basic usage:
//
//	doc, err := graphql.Load(`
//	    type Query {
//	        user(id: ID!): User
//	    }
//	    type User {
//	        id: ID!
//	        name: String!
//	    }
//	`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, op := range doc.Operations() {
//	    fmt.Println(op.ID) // query.user
//	}
//
// Responses without a fixture are synthesized from the selection set, so
// the shape always matches what the client asked for.
package graphql
