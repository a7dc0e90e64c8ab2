package github

// maxConnectionSize is the largest `first` GitHub accepts on a connection
const maxConnectionSize = 100

const teamsQuery = `query Teams($org: String!, $query: String, $first: Int!, $after: String) {
  organization(login: $org) {
    teams(first: $first, after: $after, query: $query) {
      pageInfo { endCursor hasNextPage }
      nodes {
        name
        members(first: 100) {
          totalCount
          nodes { login }
        }
      }
    }
  }
}`

const pullRequestsQuery = `query PullRequests($owner: String!, $name: String!, $first: Int!, $after: String, $items: Int!) {
  repository(owner: $owner, name: $name) {
    pullRequests(orderBy: {field: CREATED_AT, direction: DESC}, first: $first, after: $after) {
      pageInfo { endCursor hasNextPage }
      nodes {
        number
        title
        additions
        deletions
        createdAt
        author { login }
        timelineItems(itemTypes: [PULL_REQUEST_COMMIT, PULL_REQUEST_REVIEW, MERGED_EVENT, CLOSED_EVENT], first: $items) {
          nodes {
            __typename
            ... on PullRequestCommit {
              commit {
                oid
                committedDate
                author { user { login } }
              }
            }
            ... on PullRequestReview {
              publishedAt
              state
              author { login }
              comments { totalCount }
            }
            ... on MergedEvent {
              createdAt
              actor { login }
            }
            ... on ClosedEvent {
              createdAt
              actor { login }
            }
          }
        }
      }
    }
  }
}`
